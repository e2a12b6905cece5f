package knowledge

import "context"

// ExecForTest runs a raw statement against the store's database.
func (s *Store) ExecForTest(query string) error {
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}
