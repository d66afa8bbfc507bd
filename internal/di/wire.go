//go:build wireinject
// +build wireinject

package di

import (
	"postflow/internal/common"
	"postflow/internal/config"
	"postflow/internal/dbmysql"
	"postflow/internal/engine"
	"postflow/internal/notif"
	"postflow/internal/publish"
	"postflow/internal/record"

	"github.com/google/wire"
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		config.LoadConfig,
		dbmysql.NewMySQL,
		ProvideMongoClient,
		ProvideAttemptJournal,
		dbmysql.NewRecordRepository,
		dbmysql.NewAccountRepository,
		dbmysql.NewPrefRepository,
		publish.NewClient,
		wire.Bind(new(publish.Publisher), new(*publish.Client)),
		ProvideNotifier,
		notif.NewEscalator,
		wire.Bind(new(engine.Escalator), new(*notif.Escalator)),
		engine.NewEngine,
		wire.Bind(new(common.Scheduler), new(*engine.Engine)),
		record.NewRecordService,
		record.NewHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
