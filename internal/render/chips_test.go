package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

func chips(options ...domain.Button) domain.Message {
	return domain.Message{Type: domain.TypeChips, Options: options}
}

func TestMergeChipsFoldsIntoPrecedingMessage(t *testing.T) {
	opts := []domain.Button{{Text: "Sim"}, {Text: "Não"}}
	out := MergeChips([]domain.Message{
		domain.TextMessage("Confirma?"),
		chips(opts...),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Confirma?", out[0].Text)
	assert.Equal(t, opts, out[0].Buttons)
}

func TestMergeChipsWithoutPredecessorIsDropped(t *testing.T) {
	out := MergeChips([]domain.Message{chips(domain.Button{Text: "Sozinho"})})
	assert.Empty(t, out)
}

func TestMergeChipsAppendsToExistingButtons(t *testing.T) {
	msg := domain.TextMessage("Escolha")
	msg.Buttons = []domain.Button{{Text: "Primeiro"}}

	out := MergeChips([]domain.Message{msg, chips(domain.Button{Text: "Segundo"})})

	require.Len(t, out, 1)
	require.Len(t, out[0].Buttons, 2)
	assert.Equal(t, "Primeiro", out[0].Buttons[0].Text)
	assert.Equal(t, "Segundo", out[0].Buttons[1].Text)
}

func TestMergeChipsSkipsConsumedSlots(t *testing.T) {
	// Two chips in a row: both fold into the same surviving predecessor.
	out := MergeChips([]domain.Message{
		domain.TextMessage("base"),
		chips(domain.Button{Text: "a"}),
		chips(domain.Button{Text: "b"}),
	})

	require.Len(t, out, 1)
	require.Len(t, out[0].Buttons, 2)
	assert.Equal(t, "a", out[0].Buttons[0].Text)
	assert.Equal(t, "b", out[0].Buttons[1].Text)
}

func TestMergeChipsLinkOptionsExpandToText(t *testing.T) {
	out := MergeChips([]domain.Message{
		chips(
			domain.Button{Text: "Portal", Link: "https://ifpb.edu.br"},
			domain.Button{Text: "Sem link"},
		),
	})

	require.Len(t, out, 2)
	assert.Equal(t, domain.TypeText, out[0].Type)
	assert.Equal(t, "*Portal*\nhttps://ifpb.edu.br", out[0].Text)
	assert.Equal(t, "*Sem link*\n", out[1].Text)
}

func TestMergeChipsDoesNotMutateInput(t *testing.T) {
	base := domain.TextMessage("base")
	in := []domain.Message{base, chips(domain.Button{Text: "x"})}

	MergeChips(in)

	assert.Nil(t, in[0].Buttons, "input slice must stay untouched")
}

func TestPrepareDropsPlatformIgnoredMessages(t *testing.T) {
	msgs := []domain.Message{
		{Type: domain.TypeText, Text: "para todos"},
		{Type: domain.TypeText, Text: "só fora do telegram", IgnoreTelegram: true},
	}

	tg := Prepare(msgs, domain.PlatformTelegram)
	require.Len(t, tg, 1)
	assert.Equal(t, "para todos", tg[0].Text)

	web := Prepare(msgs, domain.PlatformWebchat)
	assert.Len(t, web, 2)
}

func TestPrepareIgnoredPredecessorDoesNotReceiveButtons(t *testing.T) {
	msgs := []domain.Message{
		{Type: domain.TypeText, Text: "primeiro"},
		{Type: domain.TypeText, Text: "oculto", IgnoreTelegram: true},
		chips(domain.Button{Text: "opção"}),
	}

	out := Prepare(msgs, domain.PlatformTelegram)

	require.Len(t, out, 1)
	assert.Equal(t, "primeiro", out[0].Text)
	require.Len(t, out[0].Buttons, 1)
	assert.Equal(t, "opção", out[0].Buttons[0].Text)
}
