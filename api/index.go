package handler

import (
	"net/http"

	"protegeya-backend/bootstrap"
	"protegeya-backend/internal/config"
	"protegeya-backend/internal/interfaces/router"
)

var httpHandler http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	app, err := bootstrap.New(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}
	// Serverless instances do not run cron; ledger jobs are triggered through the admin endpoints.
	httpHandler = router.Handler(app.Fiber)
}

// Handler is the serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	httpHandler.ServeHTTP(w, r)
}
