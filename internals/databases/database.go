package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"waterworks_backend/internals/configs"
	authcodeModel "waterworks_backend/internals/features/billing/authcodes/model"
	billModel "waterworks_backend/internals/features/billing/bills/model"
	gatewayModel "waterworks_backend/internals/features/billing/gateway/model"
	paymentModel "waterworks_backend/internals/features/billing/payments/model"
)

// ConnectDB opens the postgres pool. PreferSimpleProtocol keeps it usable
// behind PgBouncer in transaction mode.
func ConnectDB(cfg configs.DBConfig, log *zap.Logger, level gormLogger.LogLevel) (*gorm.DB, error) {
	log.Info("connecting to postgres", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: configs.NewGormLogger(log, level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	log.Info("db connected")
	return db, nil
}

func TunePool(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("pool tune failed", zap.Error(err))
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// WarmUpQueries fills the pool in the background once the server is up.
func WarmUpQueries(db *gorm.DB, log *zap.Logger) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := Ping(ctx, db); err != nil {
			log.Warn("warm-up ping failed", zap.Error(err))
			return
		}
		var n int64
		if err := db.WithContext(ctx).Model(&billModel.Bill{}).
			Where("bill_status = ?", billModel.BillStatusPending).Count(&n).Error; err != nil {
			log.Warn("warm-up query failed", zap.Error(err))
		}
	}()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the billing tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&billModel.Bill{},
		&paymentModel.Payment{},
		&authcodeModel.AuthorizationCode{},
		&gatewayModel.PaymentGatewayEvent{},
	)
}
