package session

import (
	"context"
	"encoding/json"
)

type fakeStore struct {
	saved json.RawMessage
	err   error
}

func (f *fakeStore) Load(context.Context, string, string) (json.RawMessage, error) {
	return f.saved, nil
}

func (f *fakeStore) Save(_ context.Context, _, _ string, value json.RawMessage) error {
	if f.err != nil {
		return f.err
	}
	f.saved = value
	return nil
}

func (f *fakeStore) Fields(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeStore) Forms(context.Context) ([]string, error)          { return nil, nil }
func (f *fakeStore) Close() error                                     { return nil }
