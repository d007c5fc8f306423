// Package ledger implements the dashboard controller: the screen state
// machine, the transaction data sources, and the client-side filtering
// and incremental reveal logic.
package ledger

// Screen identifies one of the application's screens.
type Screen int

// The closed set of screens.
const (
	ScreenSplash Screen = iota
	ScreenLogin
	ScreenRegister
	ScreenLink
	ScreenDashboard
)

func (s Screen) String() string {
	switch s {
	case ScreenSplash:
		return "splash"
	case ScreenLogin:
		return "login"
	case ScreenRegister:
		return "register"
	case ScreenLink:
		return "link-account"
	case ScreenDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// Event is something that can trigger a screen transition.
type Event int

// Navigation events.
const (
	// EventSplashTimeout fires when the splash timer elapses without a
	// verified session.
	EventSplashTimeout Event = iota
	// EventTokenVerified fires when a previously stored token verifies
	// during the splash timer.
	EventTokenVerified
	// EventLoginSucceeded fires after credential validation and a
	// successful login call.
	EventLoginSucceeded
	// EventBiometricLogin is the biometric stub; it always succeeds.
	EventBiometricLogin
	// EventGoToRegister is the explicit switch from login to register.
	EventGoToRegister
	// EventRegisterSucceeded fires after a successful registration.
	EventRegisterSucceeded
	// EventBackToLogin is the explicit back action from register.
	EventBackToLogin
	// EventGoToLink opens the bank-account linking form.
	EventGoToLink
	// EventAccountLinked fires when the linking form validates.
	EventAccountLinked
	// EventSignOut leaves the dashboard and clears the session.
	EventSignOut
	// EventClose leaves the dashboard but keeps the token, so a later
	// login can shortcut straight back.
	EventClose
	// EventSessionInvalid fires when the dashboard's entry verification
	// rejects the stored token.
	EventSessionInvalid
)

// Next is the pure transition function over (screen, event). Events
// that do not apply to the current screen leave it unchanged.
func Next(s Screen, e Event) Screen {
	switch s {
	case ScreenSplash:
		switch e {
		case EventSplashTimeout:
			return ScreenLogin
		case EventTokenVerified:
			return ScreenDashboard
		}
	case ScreenLogin:
		switch e {
		case EventLoginSucceeded, EventBiometricLogin:
			return ScreenDashboard
		case EventGoToRegister:
			return ScreenRegister
		}
	case ScreenRegister:
		switch e {
		case EventRegisterSucceeded:
			return ScreenDashboard
		case EventBackToLogin:
			return ScreenLogin
		}
	case ScreenLink:
		switch e {
		case EventAccountLinked:
			return ScreenDashboard
		case EventBackToLogin:
			return ScreenLogin
		}
	case ScreenDashboard:
		switch e {
		case EventSignOut, EventClose, EventSessionInvalid:
			return ScreenLogin
		case EventGoToLink:
			return ScreenLink
		}
	}
	return s
}
