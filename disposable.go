package compose

// Disposable is implemented by services that hold resources the provider must
// release when the Manager is closed. Only instances the provider constructed
// itself are disposed; existing services handed to AddExistingService remain
// owned by the caller.
//
// Example:
//
//	type DatabaseConnection struct {
//	    conn *sql.DB
//	}
//
//	func (dc *DatabaseConnection) Close() error {
//	    return dc.conn.Close()
//	}
type Disposable interface {
	// Close disposes the resource.
	Close() error
}
