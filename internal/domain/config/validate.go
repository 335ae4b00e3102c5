package config

import (
	"errors"
	"fmt"

	"github.com/orlv/nsrvm/internal/domain/shared"
)

// Sentinel errors returned by Validate.
var (
	// ErrNotAnObject indicates the top-level configuration document was
	// not a JSON object.
	ErrNotAnObject = errors.New("config: top-level document is not an object")
	// ErrMissingServices indicates the document had no "services" member.
	ErrMissingServices = errors.New("config: missing services object")
	// ErrInvalidAPIPort indicates a service's apiPort fell outside the
	// valid TCP port range.
	ErrInvalidAPIPort = errors.New("config: apiPort out of range")
)

// Validate checks the structural requirements of a decoded configuration
// document: it must decode to an object, must contain a services object
// (possibly empty), and every service's apiPort, if set, must be a valid
// TCP port number.
//
// Returns:
//   - error: ErrMissingServices if Services is nil; ErrInvalidAPIPort if
//     any service's apiPort is out of range; nil otherwise.
func (snap Snapshot) Validate() error {
	if snap.Services == nil {
		return ErrMissingServices
	}
	for name, svc := range snap.Services {
		// apiPort 0 means the service exposes no api port at all.
		if svc.APIPort != 0 && (svc.APIPort < 0 || svc.APIPort > shared.MaxValidPort) {
			return fmt.Errorf("%w: service %q apiPort %d", ErrInvalidAPIPort, name, svc.APIPort)
		}
	}
	return nil
}
