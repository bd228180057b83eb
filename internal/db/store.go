package db

// Store bundles the entity repositories over one connection source so
// a single value can be handed around, bound either to the pool or to
// a transaction.
type Store struct {
	Departments *DepartmentRepository
	Employees   *EmployeeRepository
	Projects    *ProjectRepository

	db DBTX
}

// NewStore creates a Store whose repositories all run on db.
func NewStore(db DBTX) *Store {
	return &Store{
		Departments: NewDepartmentRepository(db),
		Employees:   NewEmployeeRepository(db),
		Projects:    NewProjectRepository(db),
		db:          db,
	}
}

// WithDB returns a Store bound to a different connection source,
// typically a transaction. The receiver is unchanged.
func (s *Store) WithDB(db DBTX) *Store {
	return NewStore(db)
}
