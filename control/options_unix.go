//go:build unix

package control

const (
	// RunOnlyWhenLoggedIn specifies that the service should run only
	// when its owner is logged in. The 'RunAs' field in the
	// ServiceConfig must be set to the current user's name. On Linux
	// this produces a systemd user unit, and on macOS a launchd user
	// agent.
	//
	// The following ServiceConfig example demonstrates how to
	// specify this option:
	//
	//	current, err := user.Current()
	//	if err != nil {
	//		return err
	//	}
	//
	//	config := control.ServiceConfig{
	//		ID:                    "il2server",
	//		Description:           "IL-2 dedicated server",
	//		RunAs:                 current.Username,
	//		SystemSpecificOptions: map[control.SystemSpecificOption]interface{}{
	//			control.RunOnlyWhenLoggedIn: "",
	//		},
	//	}
	RunOnlyWhenLoggedIn SystemSpecificOption = "run_only_when_logged_in"
)
