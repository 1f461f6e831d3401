// Package kernel provides the shared value objects of the order lifecycle domain.
//
// The package includes:
//   - UUID: identity of orders and of the users that own them
//   - Money: order totals kept in minor currency units
//
// Values are immutable and safe for concurrent use. Their zero values are
// invalid and are reported by Validate, which lets aggregates detect values
// that bypassed the constructors.
package kernel
