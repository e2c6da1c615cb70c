package main

import (
	"context"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/feed"
	"github.com/dice-app/dice/server"
	"github.com/dice-app/dice/server/middlewares"
	"github.com/dice-app/dice/session"
	. "github.com/dice-app/dice/utils"
	"github.com/dice-app/dice/utils/dotenv"
	. "github.com/dice-app/dice/utils/flag"
	. "github.com/dice-app/dice/utils/log"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func init() {
	ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()

	if dotenv.IsProdEnv() {
		StartTracer(ServiceName)
		if err := StartProfiler(ServiceName); err != nil {
			Log.WithError(err).Warn("fail to start profiler")
		}
	}

	Log.Info("api server initialized")
}

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	defer cleanup()

	settings, err := app_setting.ParseSessionSettings(SessionConfigPath)
	if err != nil {
		Log.Fatalln("fail to parse session settings: ", err)
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatalln("fail to connect to database: ", err)
	}
	DatabaseSetupAndMigration(db)

	progress, err := GetProgressStore(context.Background())
	if err != nil {
		Log.Fatalln("fail to connect to progress store: ", err)
	}

	metrics := middlewares.NewMetricsCollector(ServiceName)
	svc := session.NewService(db, progress, feed.NewDefaultLoader(), settings)
	svc.Metrics = session.NewMetrics(metrics.Registry)

	admin := middlewares.AdminCredentialFromEnv()
	admin.Bypass = ByPassAuth

	router := server.NewRouter(svc, metrics, admin, gin.Logger(), gintrace.Middleware(ServiceName))

	Log.WithField("port", Port).Info("api server starts up")
	if err := router.Run(":" + Port); err != nil {
		Log.Fatalln("api server stopped: ", err)
	}
}
