package app

import (
	"github.com/go-chi/oauth"

	"github.com/nmcp-sl/supervise/config"
	"github.com/nmcp-sl/supervise/report"
	"github.com/nmcp-sl/supervise/store"
	"github.com/nmcp-sl/supervise/syncer"
)

type App struct {
	*store.Store
	*oauth.BearerServer
	config.Config
	Monitor *syncer.Monitor
	Engine  *syncer.Engine
	Drafts  *syncer.Drafts
	Notices *syncer.LogNotifier
	Reports *report.Service
}
