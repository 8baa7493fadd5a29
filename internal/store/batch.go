package store

import "context"

// Batch stages writes for one event. Reads see staged writes, so a handler
// observes its own saves; nothing reaches the backing store until Flush.
// A handler that fails mid-way therefore leaves no partial state behind.
type Batch struct {
	kv      KV
	pending map[string][]byte
	order   []string
}

func NewBatch(kv KV) *Batch {
	return &Batch{kv: kv, pending: make(map[string][]byte)}
}

func stageKey(kind, key string) string {
	return kind + "\x00" + key
}

// Get returns the staged value if one exists, otherwise reads through.
func (b *Batch) Get(ctx context.Context, kind, key string) ([]byte, bool, error) {
	if data, ok := b.pending[stageKey(kind, key)]; ok {
		return data, true, nil
	}
	return b.kv.Get(ctx, kind, key)
}

// Put stages a write. Later writes to the same (kind, key) replace earlier
// ones but keep the original flush position.
func (b *Batch) Put(_ context.Context, kind, key string, value []byte) error {
	sk := stageKey(kind, key)
	if _, ok := b.pending[sk]; !ok {
		b.order = append(b.order, sk)
	}
	b.pending[sk] = value
	return nil
}

// Len reports the number of staged entities.
func (b *Batch) Len() int {
	return len(b.pending)
}

// Flush writes all staged values to the backing store in first-write order.
func (b *Batch) Flush(ctx context.Context) error {
	for _, sk := range b.order {
		kind, key, _ := cutStageKey(sk)
		if err := b.kv.Put(ctx, kind, key, b.pending[sk]); err != nil {
			return err
		}
	}
	b.pending = make(map[string][]byte)
	b.order = nil
	return nil
}

func cutStageKey(sk string) (kind, key string, ok bool) {
	for i := 0; i < len(sk); i++ {
		if sk[i] == 0 {
			return sk[:i], sk[i+1:], true
		}
	}
	return sk, "", false
}
