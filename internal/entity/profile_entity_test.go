package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesAppendUnique(t *testing.T) {
	var msgs Messages

	msgs, added := msgs.AppendUnique(Prompt{"text": "hi"})
	assert.True(t, added)

	msgs, added = msgs.AppendUnique(Prompt{"text": "hi"})
	assert.False(t, added)

	msgs, added = msgs.AppendUnique(Prompt{"text": "there"})
	assert.True(t, added)

	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0]["text"])
	assert.Equal(t, "there", msgs[1]["text"])
}

func TestPromptEqualIsDeep(t *testing.T) {
	tests := []struct {
		name string
		a, b Prompt
		want bool
	}{
		{
			name: "key order does not matter",
			a:    Prompt{"text": "hi", "role": "user"},
			b:    Prompt{"role": "user", "text": "hi"},
			want: true,
		},
		{
			name: "nested values compared",
			a:    Prompt{"meta": map[string]interface{}{"tags": []interface{}{"a", "b"}}},
			b:    Prompt{"meta": map[string]interface{}{"tags": []interface{}{"a", "b"}}},
			want: true,
		},
		{
			name: "nested order matters in arrays",
			a:    Prompt{"tags": []interface{}{"a", "b"}},
			b:    Prompt{"tags": []interface{}{"b", "a"}},
			want: false,
		},
		{
			name: "int and float of same value",
			a:    Prompt{"n": 1},
			b:    Prompt{"n": 1.0},
			want: true,
		},
		{
			name: "large integers stay distinct",
			a:    Prompt{"id": json.Number("9007199254740993")},
			b:    Prompt{"id": json.Number("9007199254740992")},
			want: false,
		},
		{
			name: "superset is not equal",
			a:    Prompt{"text": "hi"},
			b:    Prompt{"text": "hi", "extra": true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestProfileCloneDoesNotShareMessages(t *testing.T) {
	p := &UserProfile{UID: "u1", Messages: Messages{{"text": "hi"}}}
	cp := p.Clone()

	cp.Messages[0]["text"] = "changed"
	cp.Messages = append(cp.Messages, Prompt{"text": "more"})

	assert.Equal(t, "hi", p.Messages[0]["text"])
	assert.Len(t, p.Messages, 1)
}

func TestProfileFieldsApply(t *testing.T) {
	name := "Ada"
	phone := ""
	p := UserProfile{UID: "u1", Name: "old", Email: "a@example.com", Phone: "123"}

	ProfileFields{Name: &name, Phone: &phone}.Apply(&p)

	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "", p.Phone)
	assert.Equal(t, "a@example.com", p.Email)
	assert.False(t, ProfileFields{Name: &name}.IsEmpty())
	assert.True(t, ProfileFields{}.IsEmpty())
}

func TestProfileDefaults(t *testing.T) {
	id := ExternalIdentity{UID: "u1", Email: "u1@example.com"}

	p := id.ProfileDefaults()

	assert.Equal(t, UserProfile{UID: "u1", Email: "u1@example.com", Messages: Messages{}}, p)
}

func TestCampaignJSONFlattensID(t *testing.T) {
	c := Campaign{ID: "c1", Fields: map[string]interface{}{"name": "A", "id": "shadow"}}

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1","name":"A"}`, string(raw))

	var back Campaign
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "c1", back.ID)
	assert.Equal(t, map[string]interface{}{"name": "A"}, back.Fields)
}

func TestSessionSnapshotIsIndependent(t *testing.T) {
	s := SessionState{Status: SessionAuthenticated, Profile: &UserProfile{UID: "u1", Name: "a"}}
	snap := s.Snapshot()

	snap.Profile.Name = "b"

	assert.Equal(t, "a", s.Profile.Name)
	assert.True(t, snap.IsAuthenticated())
}

func TestAppendUniqueKeepsLargeIntegers(t *testing.T) {
	var first, second Prompt
	require.NoError(t, decodeNumbers([]byte(`{"id": 9007199254740993}`), &first))
	require.NoError(t, decodeNumbers([]byte(`{"id": 9007199254740992}`), &second))

	msgs, added := Messages{}.AppendUnique(first)
	require.True(t, added)
	msgs, added = msgs.AppendUnique(second)
	assert.True(t, added)
	require.Len(t, msgs, 2)

	raw, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 9007199254740993}`, string(raw))
}
