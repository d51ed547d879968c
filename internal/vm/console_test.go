package vm

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalJoinsStreams(t *testing.T) {
	var out bytes.Buffer
	term := &Terminal{In: strings.NewReader("from host"), Out: &out}

	got, err := io.ReadAll(term)
	require.NoError(t, err)
	assert.Equal(t, "from host", string(got))

	n, err := term.Write([]byte("from guest"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "from guest", out.String())
}

func TestMakeRawNotATerminal(t *testing.T) {
	term := &Terminal{In: strings.NewReader(""), Out: io.Discard}

	restore, err := term.MakeRaw()
	require.NoError(t, err)
	require.NotNil(t, restore)
	restore()
}
