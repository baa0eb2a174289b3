package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mamadbah2/pricecheck/internal/repository/memory"
	commandsvc "github.com/mamadbah2/pricecheck/internal/service/commands"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
)

func TestReplRunsUntilQuit(t *testing.T) {
	formatter := ranking.NewFormatter(language.English, "฿", "ml", "L")
	session := comparison.NewSession("cli", memory.NewStore(), ranking.NewEngine(language.English, formatter), comparison.Options{})
	t.Cleanup(session.Close)
	dispatcher := commandsvc.NewService(formatter, nil, nil, nil)

	in := strings.NewReader("/add Brand A 1000 100\n\n/undo\n/quit\n/add Brand B 500 40\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), in, &out, dispatcher, session))

	text := out.String()
	assert.Contains(t, text, "Added #1 Brand A")
	assert.Contains(t, text, "There is nothing to undo.")
	assert.Contains(t, text, "Bye.")
	assert.NotContains(t, text, "Brand B")
	assert.Len(t, session.View().Entries, 1)
}

func TestReplStopsAtEndOfInput(t *testing.T) {
	formatter := ranking.NewFormatter(language.English, "฿", "ml", "L")
	session := comparison.NewSession("cli", memory.NewStore(), ranking.NewEngine(language.English, formatter), comparison.Options{})
	t.Cleanup(session.Close)

	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), strings.NewReader("/list"), &out, commandsvc.NewService(formatter, nil, nil, nil), session))
	assert.Contains(t, out.String(), "The list is empty.")
}
