package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/security"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDatesCommand(t *testing.T) {
	out, err := execute(t, "dates", "--issue", "2024-01-15", "--maturity", "2025-01-15", "--frequency", "Semi-Annually")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-07-15")
	assert.Contains(t, out, "maturity")
	assert.Equal(t, 4, strings.Count(strings.TrimSpace(out), "\n")+1, out)

	_, err = execute(t, "dates", "--issue", "2024-01-15", "--maturity", "2025-01-15", "--frequency", "Fortnightly")
	assert.ErrorIs(t, err, bondcalc.ErrInvalidFrequency)

	_, err = execute(t, "dates", "--issue", "2024-01-15")
	assert.Error(t, err)
}

func TestAccrualCommand(t *testing.T) {
	out, err := execute(t, "accrual",
		"--issue", "2024-01-15", "--maturity", "2025-01-15", "--frequency", "Semi-Annually",
		"--value-date", "2024-08-01", "--trade-date", "2024-07-10",
		"--notional", "1000000", "--rate", "5", "--price-clean", "99.5", "--fee", "0.001")
	require.NoError(t, err)

	var econ bondcalc.Economics
	require.NoError(t, json.Unmarshal([]byte(out), &econ))
	assert.Equal(t, 16, econ.DaysAccrued)
	assert.InDelta(t, 2222.2222, econ.AccruedCurrency, 1e-3)
	assert.InDelta(t, 998_222.2222, econ.SettlementAmount, 1e-3)
}

func TestTokenCommand(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	t.Setenv("JWT_SECRET", secret)
	out, err := execute(t, "token", "ops-bot")
	require.NoError(t, err)

	subject, err := security.NewAuthService(secret, 0).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops-bot", subject)

	t.Setenv("JWT_SECRET", "short")
	_, err = execute(t, "token", "ops-bot")
	assert.Error(t, err)
}

func TestRunJobCommand(t *testing.T) {
	db := t.TempDir() + "/desk.db"
	out, err := execute(t, "run-job", "UpdateCompartmentStatus2Maturity", "--db", db, "--date", "2025-01-15")
	require.NoError(t, err)
	assert.Contains(t, out, "0 record(s) changed")

	_, err = execute(t, "run-job", "Nope", "--db", db)
	assert.Error(t, err)
}
