package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "rtt.go"

// MachineID retrieves an ID identifying this machine. The raw machine id is
// hashed with the application name so it is not leaked to the broker.
// The hostname is used when the id is not available.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
