package model

type catalogKey struct {
	kind Kind
	name string
}

// Catalog is the flat, read-only message definition table.
type Catalog struct {
	messages []Message
	byKey    map[catalogKey]int
}

// NewCatalog indexes msgs. When a kind/name pair is declared twice the first
// declaration wins.
func NewCatalog(msgs []Message) *Catalog {
	c := &Catalog{
		messages: msgs,
		byKey:    make(map[catalogKey]int, len(msgs)),
	}
	for i, m := range msgs {
		k := catalogKey{m.Kind, m.Name}
		if _, ok := c.byKey[k]; !ok {
			c.byKey[k] = i
		}
	}
	return c
}

// Lookup returns the message declared with kind and name.
func (c *Catalog) Lookup(kind Kind, name string) (Message, bool) {
	i, ok := c.byKey[catalogKey{kind, name}]
	if !ok {
		return Message{}, false
	}
	return c.messages[i], true
}

// Fields returns the declared fields of a message, or nil if the message is
// unknown.
func (c *Catalog) Fields(kind Kind, name string) []Field {
	m, ok := c.Lookup(kind, name)
	if !ok {
		return nil
	}
	return m.Fields
}

// Messages returns every declared message in declaration order.
func (c *Catalog) Messages() []Message { return c.messages }
