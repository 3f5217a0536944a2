package main

import (
	"context"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/helpme-app/helpme-api/schema"
)

func init() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("helpme")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// The orm connection string of the services is expected to carry
// search_path=helpme.
func main() {
	db, err := gorm.Open("postgres", viper.GetString("orm.conn"))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS helpme`).Error; err != nil {
		panic(err)
	}

	if err := db.Exec("SET search_path TO helpme").Error; err != nil {
		panic(err)
	}

	if err := db.AutoMigrate(
		&schema.HelpRequest{},
		&schema.Helper{},
		&schema.EventRecord{},
	).Error; err != nil {
		panic(err)
	}

	// the sweeper scans active requests by age
	if err := db.Model(schema.HelpRequest{}).
		AddIndex("help_requests_status_created_at", "status", "created_at").Error; err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(viper.GetString("mongo.conn")))
	if err != nil {
		panic(err)
	}
	defer client.Disconnect(context.Background())

	if err := schema.EnsureMongoIndexes(ctx, client.Database(viper.GetString("mongo.database"))); err != nil {
		panic(err)
	}
}
