/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "dice_server"
	CLI       = "dice_cli"
)

var (
	ServiceName       = APIServer
	SessionConfigPath string
	ByPassAuth        bool
	Port              string
)

// ParseFlags registers and parses the flags used by the HTTP server. The CLI
// has its own cobra flags and only sets ServiceName.
func ParseFlags() {
	flag.StringVar(&ServiceName, "service", APIServer, "service name reported in logs and traces")
	flag.StringVar(&SessionConfigPath, "session_config_path", "cmd/server/sessions.yaml", "path to session settings")
	flag.BoolVar(&ByPassAuth, "bypass_auth", false, "skip admin basic auth, only for local development")
	flag.StringVar(&Port, "port", "8080", "port the api server listens on")
	flag.Parse()
}
