package logger

import (
	"go.uber.org/zap"
)

// productionならJSON、それ以外は開発向けの出力
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
