package datastore

// RegistryStore bundles the stores backing the version registry. It is
// satisfied both by the database-backed Stores and by the in-memory registry.
type RegistryStore interface {
	Packages() PackageStore
	Releases() ReleaseStore
	Distributions() DistributionStore
}

// Stores is the database-backed RegistryStore.
type Stores struct {
	db Queryer
}

// NewStores builds a RegistryStore on top of db, which can be either a
// *DB or a *Tx.
func NewStores(db Queryer) *Stores {
	return &Stores{db: db}
}

// Packages returns a package store.
func (s *Stores) Packages() PackageStore {
	return NewPackageStore(s.db)
}

// Releases returns a release store.
func (s *Stores) Releases() ReleaseStore {
	return NewReleaseStore(s.db)
}

// Distributions returns a distribution store.
func (s *Stores) Distributions() DistributionStore {
	return NewDistributionStore(s.db)
}
