package export

// FakeExportStore keeps exports in memory.
type FakeExportStore struct {
	Stored map[string][]byte
}

func NewFakeExportStore() *FakeExportStore {
	return &FakeExportStore{Stored: map[string][]byte{}}
}

func (s *FakeExportStore) Store(name string, body []byte) (string, error) {
	s.Stored[name] = body
	return name, nil
}

func (*FakeExportStore) GetUrlFromKey(key string) string {
	return key
}
