package source

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rawrshakScope/internal/config"
	"rawrshakScope/internal/contracts"
	"rawrshakScope/internal/model"
	"rawrshakScope/internal/reducer"
	"rawrshakScope/internal/storage"
	"rawrshakScope/internal/store"
)

var (
	testResolver = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testFactory  = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	testContent  = common.HexToAddress("0x00000000000000000000000000000000000000a4")
	testManager  = common.HexToAddress("0x00000000000000000000000000000000000000a5")
	testSender   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

const testTimestamp = uint64(1646800000)

type fakeChain struct {
	latest   uint64
	logs     map[common.Address][]types.Log
	failures int
	calls    int
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeChain) BlockTimestamp(context.Context, uint64) (uint64, error) {
	return testTimestamp, nil
}

func (f *fakeChain) TransactionSender(context.Context, common.Hash) (common.Address, error) {
	return testSender, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, _, _ uint64, addresses []common.Address, _ []common.Hash) ([]types.Log, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("rpc down")
	}
	var out []types.Log
	for _, addr := range addresses {
		out = append(out, f.logs[addr]...)
	}
	return out, nil
}

type collectSink struct {
	records []storage.LogRecord
}

func (c *collectSink) Append(record storage.LogRecord) error {
	c.records = append(c.records, record)
	return nil
}

func eventLog(t *testing.T, role, name string, emitter common.Address, block uint64, index uint, values ...interface{}) types.Log {
	t.Helper()
	abis, err := contracts.RawrshakABIs()
	if err != nil {
		t.Fatalf("parse abis: %v", err)
	}
	event, ok := abis[role].Events[name]
	if !ok {
		t.Fatalf("event %s not in %s abi", name, role)
	}
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", name, err)
	}
	return types.Log{
		Address:     emitter,
		Topics:      []common.Hash{event.ID},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BytesToHash([]byte{byte(block), byte(index)}),
		Index:       index,
	}
}

func newTestPipeline(t *testing.T) (*store.Memory, *SubscriptionSet, *contracts.Decoder, *reducer.Reducer) {
	t.Helper()
	campaign, err := config.LoadCampaign("")
	if err != nil {
		t.Fatalf("load campaign: %v", err)
	}
	decoder, err := contracts.NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	kv := store.NewMemory()
	subs := NewSubscriptionSet(testResolver)
	return kv, subs, decoder, reducer.New(campaign, kv, subs, nil)
}

func TestRunnerReducesAndGrowsSubscriptions(t *testing.T) {
	kv, subs, decoder, red := newTestPipeline(t)

	registration := eventLog(t, "resolver", "AddressRegistered", testResolver, 5, 0,
		testFactory, [4]byte{0xdb, 0x33, 0x7f, 0x7d})
	deployment := eventLog(t, "factory", "ContractsDeployed", testFactory, 6, 0,
		testContent, testManager)

	chain := &fakeChain{
		latest: 10,
		logs: map[common.Address][]types.Log{
			// The registration is delivered twice; dedupe keeps one.
			testResolver: {registration, registration},
			testFactory:  {deployment},
		},
	}
	sink := &collectSink{}

	runner := NewRunner(RunConfig{
		FromBlock:         1,
		ToBlock:           10,
		BatchSize:         100,
		CheckpointPath:    filepath.Join(t.TempDir(), "checkpoint.json"),
		CheckpointEnabled: true,
		RetryBackoff:      time.Millisecond,
	}, chain, subs, decoder, red, sink, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	ctx := context.Background()
	if _, ok, _ := store.LoadFactory(ctx, kv, model.AddressID(testFactory)); !ok {
		t.Fatalf("factory not reduced")
	}
	content, ok, err := store.LoadContent(ctx, kv, model.AddressID(testContent))
	if err != nil || !ok {
		t.Fatalf("content not reduced: %v", err)
	}
	if content.Factory != model.AddressID(testFactory) {
		t.Fatalf("content factory = %q", content.Factory)
	}

	// Pass 1 queries the resolver, pass 2 the discovered factory, pass 3
	// the content and manager (no logs, set stops growing).
	if chain.calls != 3 {
		t.Fatalf("filter calls = %d, want 3", chain.calls)
	}
	if subs.Len() != 4 {
		t.Fatalf("subscriptions = %d, want 4", subs.Len())
	}

	if len(sink.records) != 2 {
		t.Fatalf("captured records = %d, want 2", len(sink.records))
	}
	if sink.records[0].Timestamp != testTimestamp || sink.records[0].TxFrom != testSender.Hex() {
		t.Fatalf("captured record lookups wrong: %+v", sink.records[0])
	}

	cp, ok, err := NewCheckpointStore(runner.cfg.CheckpointPath, true).Load()
	if err != nil || !ok {
		t.Fatalf("checkpoint not saved: %v", err)
	}
	if cp.LastReducedBlock != 10 {
		t.Fatalf("lastReducedBlock = %d, want 10", cp.LastReducedBlock)
	}
}

func TestRunnerRetriesFilterFailures(t *testing.T) {
	kv, subs, decoder, red := newTestPipeline(t)

	registration := eventLog(t, "resolver", "AddressRegistered", testResolver, 5, 0,
		testFactory, [4]byte{0xdb, 0x33, 0x7f, 0x7d})
	chain := &fakeChain{
		latest:   10,
		failures: 2,
		logs:     map[common.Address][]types.Log{testResolver: {registration}},
	}

	runner := NewRunner(RunConfig{
		FromBlock:    1,
		ToBlock:      10,
		BatchSize:    100,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, chain, subs, decoder, red, nil, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok, _ := store.LoadFactory(context.Background(), kv, model.AddressID(testFactory)); !ok {
		t.Fatalf("factory not reduced after retries")
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	_, subs, decoder, red := newTestPipeline(t)

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := NewCheckpointStore(path, true).Save(10); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	chain := &fakeChain{latest: 10}
	runner := NewRunner(RunConfig{
		FromBlock:         1,
		ToBlock:           10,
		BatchSize:         100,
		CheckpointPath:    path,
		CheckpointEnabled: true,
		RetryBackoff:      time.Millisecond,
	}, chain, subs, decoder, red, nil, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if chain.calls != 0 {
		t.Fatalf("filter calls = %d, want 0 when fully caught up", chain.calls)
	}
}

func TestReplayFromCapture(t *testing.T) {
	kv, _, decoder, red := newTestPipeline(t)

	registration := eventLog(t, "resolver", "AddressRegistered", testResolver, 5, 0,
		testFactory, [4]byte{0xdb, 0x33, 0x7f, 0x7d})

	path := filepath.Join(t.TempDir(), "logs.jsonl")
	sink, err := storage.NewJsonlStorage(path)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	record := storage.FromLog(registration, testTimestamp, testSender, time.Now())
	if err := sink.Append(record); err != nil {
		t.Fatalf("append: %v", err)
	}
	// A duplicate line must be skipped on replay.
	if err := sink.Append(record); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close sink: %v", err)
	}

	reader, err := storage.NewJsonlReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer reader.Close()

	if err := Replay(context.Background(), reader, decoder, red, nil); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if _, ok, _ := store.LoadFactory(context.Background(), kv, model.AddressID(testFactory)); !ok {
		t.Fatalf("factory not reduced from capture")
	}
}
