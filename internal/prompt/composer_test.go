package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"StudyChat/internal/catalog"
)

func TestComposeWithSubject(t *testing.T) {
	p, err := Compose("explain momentum", catalog.Physics)
	require.NoError(t, err)
	require.Equal(t, "Context: Helping with Physics. explain momentum", p)
}

func TestComposeWithoutSubject(t *testing.T) {
	p, err := Compose("what is a derivative?", "")
	require.NoError(t, err)
	require.Equal(t, "what is a derivative?", p)
}

func TestComposeRejectsBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := Compose(in, catalog.Biology)
		require.ErrorIs(t, err, ErrEmptyInput, "input %q", in)
	}
}

func TestQuickActionText(t *testing.T) {
	tips := catalog.QuickAction{Label: "Study Tips", Icon: "school"}
	require.Equal(t, "Study Tips for Biology", QuickActionText(tips, catalog.Biology))
	require.Equal(t, "Study Tips", QuickActionText(tips, ""))
}
