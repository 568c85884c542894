package lark

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firestation/dutybot/internal/application/port"
)

func TestBuildOptionCard(t *testing.T) {
	card := buildOptionCard("Choose a vehicle:", []port.Option{
		{Label: "A 101 BC", Data: "shift_vehicle_1"},
		{Label: "Cancel", Data: "universal_cancel"},
	})

	raw, err := json.Marshal(card)
	require.NoError(t, err)

	var decoded struct {
		Elements []struct {
			Tag  string `json:"tag"`
			Text struct {
				Content string `json:"content"`
			} `json:"text"`
			Actions []struct {
				Text struct {
					Content string `json:"content"`
				} `json:"text"`
				Value map[string]string `json:"value"`
			} `json:"actions"`
		} `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.Len(t, decoded.Elements, 2)
	assert.Equal(t, "div", decoded.Elements[0].Tag)
	assert.Equal(t, "Choose a vehicle:", decoded.Elements[0].Text.Content)

	actions := decoded.Elements[1].Actions
	require.Len(t, actions, 2)
	assert.Equal(t, "A 101 BC", actions[0].Text.Content)
	assert.Equal(t, "shift_vehicle_1", actions[0].Value["action"])
	assert.Equal(t, "universal_cancel", actions[1].Value["action"])
}

func TestBuildOptionCard_NoText(t *testing.T) {
	card := buildOptionCard("", []port.Option{{Label: "OK", Data: "ok"}})

	elements, ok := card["elements"].([]interface{})
	require.True(t, ok)
	assert.Len(t, elements, 1)
}
