package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// Settings is the typed view of the environment the server runs with.
type Settings struct {
	Mode string
	Port string

	DBType      string
	DatabaseURL string
	ReplicaURLs []string

	GoogleClientID     string
	GoogleClientSecret string
	CallbackURL        string
	AllowedEmail       string

	SessionSecret string
	FrontendURL   string
	// AcceptedOrigins always contains FrontendURL.
	AcceptedOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load builds Settings from an env map and reports every missing required key at once.
func Load(c map[string]string) (Settings, error) {
	mode := strings.ToLower(GetString(c, "APP_ENV", GetString(c, "NODE_ENV", ModeDevelopment)))
	if mode != ModeProduction {
		mode = ModeDevelopment
	}

	s := Settings{
		Mode:               mode,
		Port:               GetString(c, "PORT", "5001"),
		DBType:             strings.ToLower(GetString(c, "DB_TYPE", "postgres")),
		DatabaseURL:        GetString(c, "DATABASE_URL", ""),
		ReplicaURLs:        GetList(c, "DATABASE_REPLICA_URL"),
		GoogleClientID:     GetString(c, "GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: GetString(c, "GOOGLE_CLIENT_SECRET", ""),
		CallbackURL:        GetString(c, "CALLBACK_URL", ""),
		AllowedEmail:       strings.TrimSpace(GetString(c, "ALLOWED_EMAIL", "")),
		SessionSecret:      GetString(c, "SESSION_SECRET", ""),
		FrontendURL:        strings.TrimSuffix(GetString(c, "FRONTEND_URL", ""), "/"),
		ReadTimeout:        time.Duration(GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second,
		WriteTimeout:       time.Duration(GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second,
		IdleTimeout:        time.Duration(GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second,
	}

	s.AcceptedOrigins = append(s.AcceptedOrigins, s.FrontendURL)
	for _, origin := range GetList(c, "ACCEPTED_ORIGINS") {
		if origin = strings.TrimSuffix(origin, "/"); origin != s.FrontendURL {
			s.AcceptedOrigins = append(s.AcceptedOrigins, origin)
		}
	}

	required := map[string]string{
		"DATABASE_URL":         s.DatabaseURL,
		"GOOGLE_CLIENT_ID":     s.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": s.GoogleClientSecret,
		"CALLBACK_URL":         s.CallbackURL,
		"ALLOWED_EMAIL":        s.AllowedEmail,
		"SESSION_SECRET":       s.SessionSecret,
		"FRONTEND_URL":         s.FrontendURL,
	}
	var missing []string
	for _, key := range requiredKeys {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return s, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if s.DBType != "postgres" && s.DBType != "sqlite" {
		return s, fmt.Errorf("unsupported DB_TYPE %q", s.DBType)
	}

	return s, nil
}

// stable order for error messages
var requiredKeys = []string{
	"DATABASE_URL",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
	"CALLBACK_URL",
	"ALLOWED_EMAIL",
	"SESSION_SECRET",
	"FRONTEND_URL",
}

func (s Settings) IsProduction() bool {
	return s.Mode == ModeProduction
}

// LoginSuccessURL is where the browser lands after a successful sign-in.
func (s Settings) LoginSuccessURL() string {
	return s.FrontendURL + "/admin/dashboard"
}

// LoginFailureURL carries only a generic error marker.
func (s Settings) LoginFailureURL() string {
	return s.FrontendURL + "/admin/login?error=auth_failed"
}
