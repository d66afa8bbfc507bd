package di

import (
	"log"

	"postflow/internal/common"
	"postflow/internal/config"
	"postflow/internal/dbmongo"
	"postflow/internal/engine"
	"postflow/internal/notif"
	"postflow/internal/record"

	"gorm.io/gorm"
)

type Application struct {
	Config  *config.Config
	DB      *gorm.DB
	Mongo   *dbmongo.MongoClient
	Engine  *engine.Engine
	Service record.RecordService
	Handler *record.Handler
}

// ProvideMongoClient connects the attempt journal store. The journal is
// optional; a disabled or unreachable Mongo only costs attempt history.
func ProvideMongoClient(cfg *config.Config) *dbmongo.MongoClient {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB disabled, attempt journal off")
		return nil
	}

	client, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		log.Printf("MongoDB connection failed, attempt journal off: %v", err)
		return nil
	}

	return client
}

func ProvideAttemptJournal(client *dbmongo.MongoClient) dbmongo.AttemptJournal {
	if client == nil {
		return nil
	}
	return dbmongo.NewAttemptStore(client)
}

func ProvideNotifier(cfg *config.Config) common.Notifier {
	if !cfg.Email.Enabled {
		return notif.LogNotifier{}
	}
	return notif.NewEmailNotifier(cfg)
}
