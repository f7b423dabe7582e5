package entity

import "encoding/json"

// Campaign is a read-only projection of a stored campaign document.
type Campaign struct {
	ID     string
	Fields map[string]interface{}
}

// MarshalJSON flattens the document as {"id": ..., ...fields}. A stored
// "id" field never shadows the document id.
func (c Campaign) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Fields)+1)
	for k, v := range c.Fields {
		out[k] = v
	}
	out["id"] = c.ID
	return json.Marshal(out)
}

func (c *Campaign) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, _ := raw["id"].(string)
	delete(raw, "id")
	c.ID = id
	c.Fields = raw
	return nil
}

func (c Campaign) Clone() Campaign {
	fields := make(map[string]interface{}, len(c.Fields))
	for k, v := range c.Fields {
		fields[k] = v
	}
	return Campaign{ID: c.ID, Fields: fields}
}
