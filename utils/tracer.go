package utils

import (
	"github.com/dice-app/dice/utils/dotenv"
	. "github.com/dice-app/dice/utils/log"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func ddEnv() string {
	if dotenv.IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for the given service.
func StartTracer(serviceName string) {
	tracer.Start(
		tracer.WithService(serviceName),
		tracer.WithEnv(ddEnv()),
	)

	Log.WithFields(
		logrus.Fields{"service": serviceName, "env": ddEnv()},
	).Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
