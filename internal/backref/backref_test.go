package backref

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const wantID = "abcd1234-abcd-1234-abcd-1234abcd1234"

func TestExtractFromNotionURL(t *testing.T) {
	cases := []string{
		"https://www.notion.so/abcd1234abcd1234abcd1234abcd1234",
		"https://notion.so/My-Page-Title-abcd1234abcd1234abcd1234abcd1234",
		"Notion: https://www.notion.so/workspace-abcd1234abcd1234abcd1234abcd1234 (source)",
	}
	for _, text := range cases {
		id, ok := Extract(text)
		require.True(t, ok, text)
		require.Equal(t, wantID, id, text)
	}
}

func TestExtractHyphenatedUUID(t *testing.T) {
	id, ok := Extract("origin page abcd1234-abcd-1234-abcd-1234abcd1234 end")
	require.True(t, ok)
	require.Equal(t, wantID, id)
}

func TestExtractBareCompactHex(t *testing.T) {
	id, ok := Extract("ref abcd1234abcd1234abcd1234abcd1234")
	require.True(t, ok)
	require.Equal(t, wantID, id)
}

func TestExtractNotFound(t *testing.T) {
	for _, text := range []string{
		"",
		"no references here",
		"short hex deadbeef",
		"https://www.notion.so/",
		"almost abcd1234abcd1234abcd1234abcd123", // 31 hex chars
	} {
		_, ok := Extract(text)
		require.False(t, ok, text)
	}
}

func TestNormalize(t *testing.T) {
	id, ok := Normalize("abcd1234abcd1234abcd1234abcd1234")
	require.True(t, ok)
	require.Equal(t, wantID, id)

	id, ok = Normalize(" ABCD1234-ABCD-1234-ABCD-1234ABCD1234 ")
	require.True(t, ok)
	require.Equal(t, wantID, id)

	_, ok = Normalize("not-an-id")
	require.False(t, ok)
}

func TestEncodings(t *testing.T) {
	enc := Encodings("abcd1234abcd1234abcd1234abcd1234")
	require.Equal(t, []string{wantID, "abcd1234abcd1234abcd1234abcd1234"}, enc)
}

func TestLink(t *testing.T) {
	require.Equal(t,
		"https://www.notion.so/abcd1234abcd1234abcd1234abcd1234",
		Link(wantID))
}
