package config

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/clubhub/internal/model"
)

func testConfig() *model.AppConfig {
	cfg := &model.AppConfig{PollIntervalSec: 30}
	cfg.Backend.BaseURL = "https://clubs.example.com"
	cfg.ReadState.Driver = model.ReadStateSQLite
	cfg.ReadState.RedisAddr = "localhost:6379"
	return cfg
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://clubs.example.com", false},
		{"http with port", "http://localhost:8080", false},
		{"surrounding space", "  https://clubs.example.com  ", false},
		{"empty", "", true},
		{"no scheme", "clubs.example.com", true},
		{"wrong scheme", "ftp://clubs.example.com", true},
		{"no host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	assert.NoError(t, validatePositiveInt("30"))
	assert.NoError(t, validatePositiveInt(" 5 "))
	assert.EqualError(t, validatePositiveInt("0"), "must be greater than zero")
	assert.EqualError(t, validatePositiveInt("-3"), "must be greater than zero")
	assert.EqualError(t, validatePositiveInt("soon"), "must be a number")
}

func TestTokenValidator(t *testing.T) {
	assert.NoError(t, tokenValidator(true)(""))
	assert.EqualError(t, tokenValidator(false)("  "), "Session token is required")
	assert.NoError(t, tokenValidator(false)("abc"))
}

func TestModel_ApplyFormFields(t *testing.T) {
	cfg := testConfig()
	m := New(cfg, "", nil, true, 80, 24)

	m.fields.baseURL = " https://other.example.com/ "
	m.fields.driver = model.ReadStateRedis
	m.fields.redisAddr = ""
	m.fields.interval = "90"

	got := m.applyFormFields()
	assert.Equal(t, "https://other.example.com", got.Backend.BaseURL)
	assert.Equal(t, model.ReadStateRedis, got.ReadState.Driver)
	assert.Equal(t, "localhost:6379", got.ReadState.RedisAddr, "blank address keeps the saved one")
	assert.Equal(t, 90, got.PollIntervalSec)

	assert.Equal(t, "https://clubs.example.com", cfg.Backend.BaseURL, "original config untouched")
}

func TestModel_ResetRestoresSavedValues(t *testing.T) {
	m := New(testConfig(), "", nil, false, 80, 24)
	m.fields.baseURL = "https://typo.example.com"
	m.fields.token = "secret"
	m.mode = ModeValidateResult
	m.validError = errors.New("boom")

	m.Reset()

	assert.Equal(t, ModeForm, m.mode)
	assert.NoError(t, m.validError)
	assert.Equal(t, "https://clubs.example.com", m.fields.baseURL)
	assert.Empty(t, m.fields.token)
	assert.Equal(t, "30", m.fields.interval)
}

func TestModel_ValidateResultKeys(t *testing.T) {
	saved := testConfig()

	tests := []struct {
		name     string
		result   ValidateResultMsg
		key      tea.KeyMsg
		wantMsg  tea.Msg
		wantMode ConfigMode
	}{
		{
			name:     "enter after success reconnects",
			result:   ValidateResultMsg{Principal: "aaaaa-aa", Config: saved},
			key:      tea.KeyMsg{Type: tea.KeyEnter},
			wantMsg:  ConfigSavedMsg{Config: saved, Principal: "aaaaa-aa"},
			wantMode: ModeValidateResult,
		},
		{
			name:     "esc after success closes",
			result:   ValidateResultMsg{Principal: "aaaaa-aa", Config: saved},
			key:      tea.KeyMsg{Type: tea.KeyEsc},
			wantMsg:  ConfigDoneMsg{},
			wantMode: ModeValidateResult,
		},
		{
			name:     "enter after failure edits again",
			result:   ValidateResultMsg{Err: errors.New("unauthorized")},
			key:      tea.KeyMsg{Type: tea.KeyEnter},
			wantMode: ModeForm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testConfig(), "", nil, true, 80, 24)
			m, _ = m.Update(tt.result)
			require.Equal(t, ModeValidateResult, m.mode)

			m, cmd := m.Update(tt.key)
			assert.Equal(t, tt.wantMode, m.mode)
			if tt.wantMsg != nil {
				require.NotNil(t, cmd)
				assert.Equal(t, tt.wantMsg, cmd())
			}
		})
	}
}

func TestModel_EscCancelsForm(t *testing.T) {
	m := New(testConfig(), "", nil, true, 80, 24)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ConfigDoneMsg{}, cmd())
}

func TestModel_ViewShowsResult(t *testing.T) {
	m := New(testConfig(), "", nil, true, 80, 24)

	m, _ = m.Update(ValidateResultMsg{Principal: "aaaaa-aa", Config: testConfig()})
	assert.Contains(t, m.View(), "Authenticated as: aaaaa-aa")

	m, _ = m.Update(ValidateResultMsg{Err: errors.New("unauthorized")})
	assert.Contains(t, m.View(), "Connection failed")
	assert.Contains(t, m.View(), "unauthorized")
}
