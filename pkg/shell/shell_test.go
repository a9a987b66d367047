package shell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteSplit(t *testing.T) {
	require.Equal(t, []string{"systemctl", "restart", "motion"}, QuoteSplit("systemctl restart motion"))
	require.Equal(t, []string{"sh", "-c", "killall motion"}, QuoteSplit(`sh -c "killall motion"`))
	require.Nil(t, QuoteSplit(`sh -c "unterminated`))
}

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("MJPG_TEST_PASS", "secret")

	require.Equal(t, "pass: secret", ReplaceEnvVars("pass: ${MJPG_TEST_PASS}"))
	require.Equal(t, "user: admin", ReplaceEnvVars("user: ${MJPG_TEST_USER:admin}"))
	require.Equal(t, "user: ${MJPG_TEST_USER}", ReplaceEnvVars("user: ${MJPG_TEST_USER}"))
}
