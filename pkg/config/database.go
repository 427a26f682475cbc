package config

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
	log      zerolog.Logger
}

// InitDB opens and pings both databases
func InitDB(ctx context.Context, cfg *Config, log zerolog.Logger) (*DB, error) {
	postgresDB, err := initPostgres(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	log.Info().Msg("connected to PostgreSQL")

	mongoClient, err := initMongo(ctx, cfg.MongoURI)
	if err != nil {
		closePostgres(postgresDB, log)
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	return &DB{
		Postgres: postgresDB,
		Mongo:    mongoClient,
		MongoDB:  mongoClient.Database(cfg.MongoDatabase),
		log:      log,
	}, nil
}

func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		closePostgres(db.Postgres, db.log)
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error().Err(err).Msg("error closing MongoDB connection")
		} else {
			db.log.Info().Msg("MongoDB connection closed")
		}
	}
}

func closePostgres(db *gorm.DB, log zerolog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error().Err(err).Msg("error getting SQL DB from GORM")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("error closing PostgreSQL connection")
		return
	}
	log.Info().Msg("PostgreSQL connection closed")
}
