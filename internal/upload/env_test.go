package upload

import (
	"reflect"
	"testing"
)

func TestApplyEnvironmentVariables(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		config    *Config
		expected  *Config
		expectErr bool
	}{
		{
			name: "nexus server and credentials",
			envVars: map[string]string{
				"NEXUS_HOST_URL": "https://nexus.example.com",
				"NEXUS_USER":     "ci-bot",
				"NEXUS_TOKEN":    "s3cr3t",
			},
			config: NewConfig(),
			expected: &Config{
				Timeout:         100,
				ChecksumWorkers: 4,
				Nexus: NexusConfig{
					HostURL: "https://nexus.example.com",
					User:    "ci-bot",
					Token:   "s3cr3t",
				},
			},
		},
		{
			name: "environment wins over file values",
			envVars: map[string]string{
				"NEXUS_TOKEN":            "from-env",
				"NEXUS_UPLOAD_TIMEOUT":   "30",
				"NEXUS_UPLOAD_LOG_LEVEL": "debug",
			},
			config: &Config{
				Timeout: 100,
				Nexus:   NexusConfig{HostURL: "http://file", User: "file-user", Token: "from-file"},
				Log:     LogConfig{Level: "info", Format: "json"},
			},
			expected: &Config{
				Timeout: 30,
				Nexus:   NexusConfig{HostURL: "http://file", User: "file-user", Token: "from-env"},
				Log:     LogConfig{Level: "debug", Format: "json"},
			},
		},
		{
			name: "TLS configuration overrides",
			envVars: map[string]string{
				"NEXUS_TLS_MIN_VERSION":          "1.3",
				"NEXUS_TLS_INSECURE_SKIP_VERIFY": "true",
				"NEXUS_TLS_CA_CERT_FILE":         "/custom/ca.pem",
				"NEXUS_TLS_SERVER_NAME":          "custom.example.com",
				"NEXUS_TLS_CIPHER_SUITES":        "TLS_AES_256_GCM_SHA384, TLS_CHACHA20_POLY1305_SHA256",
			},
			config: &Config{
				TLS: TLSConfig{MinVersion: "1.2", MaxVersion: "1.3"},
			},
			expected: &Config{
				TLS: TLSConfig{
					MinVersion:         "1.3",
					MaxVersion:         "1.3",
					InsecureSkipVerify: true,
					CACertFile:         "/custom/ca.pem",
					ServerName:         "custom.example.com",
					CipherSuites:       []string{"TLS_AES_256_GCM_SHA384", "TLS_CHACHA20_POLY1305_SHA256"},
				},
			},
		},
		{
			name:    "empty variables do not override",
			envVars: map[string]string{"NEXUS_USER": ""},
			config: &Config{
				Nexus: NexusConfig{User: "file-user"},
			},
			expected: &Config{
				Nexus: NexusConfig{User: "file-user"},
			},
		},
		{
			name:      "invalid integer value",
			envVars:   map[string]string{"NEXUS_UPLOAD_CHECKSUM_WORKERS": "many"},
			config:    NewConfig(),
			expectErr: true,
		},
		{
			name:      "invalid boolean value",
			envVars:   map[string]string{"NEXUS_TLS_INSECURE_SKIP_VERIFY": "sometimes"},
			config:    NewConfig(),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			err := tt.config.ApplyEnvironmentVariables()
			if tt.expectErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if !reflect.DeepEqual(tt.config, tt.expected) {
				t.Errorf("config = %+v, expected %+v", tt.config, tt.expected)
			}
		})
	}
}

func TestSetFieldFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		envVar    string
		envValue  string
		fieldType reflect.Type
		expected  any
		expectErr bool
	}{
		{"string field", "TEST_STRING", "test-value", reflect.TypeOf(""), "test-value", false},
		{"int field", "TEST_INT", "42", reflect.TypeOf(0), 42, false},
		{"bool field true", "TEST_BOOL", "true", reflect.TypeOf(false), true, false},
		{"bool field false", "TEST_BOOL", "false", reflect.TypeOf(false), false, false},
		{"string slice field", "TEST_SLICE", "item1, item2,,item3", reflect.TypeOf([]string{}),
			[]string{"item1", "item2", "item3"}, false},
		{"invalid int", "TEST_INT", "not-a-number", reflect.TypeOf(0), nil, true},
		{"invalid bool", "TEST_BOOL", "not-a-bool", reflect.TypeOf(false), nil, true},
		{"unsupported type", "TEST_FLOAT", "1.5", reflect.TypeOf(1.0), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.envValue)

			field := reflect.New(tt.fieldType).Elem()
			err := setFieldFromEnv(field, tt.envVar)

			if tt.expectErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			actual := field.Interface()
			if !reflect.DeepEqual(actual, tt.expected) {
				t.Errorf("Expected %v (%T), got %v (%T)", tt.expected, tt.expected, actual, actual)
			}
		})
	}
}
