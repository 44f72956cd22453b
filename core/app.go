package core

import (
	"github.com/hsuden/wellatlas/cnf"
	"github.com/hsuden/wellatlas/db"
)

// App bundles the shared dependencies so handlers never reopen resources per
// request. Config is the raw key=value map; Cfg the typed view.
type App struct {
	Config map[string]string
	Cfg    cnf.AppConfig
	DB     db.DB
}

func NewApp(cfg cnf.AppConfig, raw map[string]string, database db.DB) *App {
	if raw == nil {
		raw = map[string]string{}
	}
	return &App{
		Config: raw,
		Cfg:    cfg,
		DB:     database,
	}
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
