package protocol

// MaxPreKeyID bounds the pre-key identifier space. Identifiers are 24-bit
// values with zero reserved as "no pre-key".
const MaxPreKeyID uint32 = 0xFFFFFF

// NextPreKeyID maps a strictly increasing index (starting at 1) onto the
// pre-key id space. Ids cycle after MaxPreKeyID-1 distinct values and are
// never zero. The function is stateless: the caller owns the index and must
// serialize increments so no two allocations observe the same value.
func NextPreKeyID(index uint32) uint32 {
	return (index-1)%(MaxPreKeyID-1) + 1
}
