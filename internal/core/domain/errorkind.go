package domain

// ErrorKind identifies one member of the closed taxonomy of MobileTouch
// failure signatures the watchdog knows how to repair. The set is fixed:
// it is the contract surface shared with the repair helper and with the
// test-fixture harness, and rule tables may only reference these values.
type ErrorKind string

const (
	// KindReferenceTableCorrupt usually points to a corrupt reference table.
	// Repaired by clearing the reftables object store.
	KindReferenceTableCorrupt ErrorKind = "REFERENCE_TABLE_CORRUPT"

	// KindDeviceInfoInvalid points to missing device info or a corrupt
	// device object store. Repaired by clearing the deviceinfo entry,
	// cookies, and the service worker cache.
	KindDeviceInfoInvalid ErrorKind = "DEVICE_INFO_INVALID"

	// KindCorruptSchema points to IndexedDB schema corruption. Chart data
	// is likely already lost, so the repair is a hard reset of AppData.
	KindCorruptSchema ErrorKind = "CORRUPT_SCHEMA"

	// KindStoresNotCorrectlySetUp points to database corruption detected
	// during store setup. Repaired by a hard reset of AppData.
	KindStoresNotCorrectlySetUp ErrorKind = "STORES_NOT_CORRECTLY_SET_UP"
)

// RepairClass names the concrete repair path the external helper executes
// for a kind. Several kinds can share one class.
type RepairClass string

const (
	RepairClearRefTables  RepairClass = "clear-reftables"
	RepairClearDeviceInfo RepairClass = "clear-deviceinfo"
	RepairHardReset       RepairClass = "hard-reset"
)

// KindInfo describes one taxonomy member for rule authors, operators, and
// the fixture harness.
type KindInfo struct {
	Kind ErrorKind

	// Description is the operator-facing explanation of the condition.
	Description string

	// ProducesAlerts reports whether the condition is expected to surface
	// user-visible alerts in the application while it persists.
	ProducesAlerts bool

	// Repair is the repair path the helper runs for this kind.
	Repair RepairClass
}

// Kinds is the taxonomy metadata table, in declaration order.
var Kinds = []KindInfo{
	{
		Kind:           KindReferenceTableCorrupt,
		Description:    "Reference table load failed; reference data store is corrupt",
		ProducesAlerts: true,
		Repair:         RepairClearRefTables,
	},
	{
		Kind:           KindDeviceInfoInvalid,
		Description:    "Device info load failed; device record missing or store corrupt",
		ProducesAlerts: true,
		Repair:         RepairClearDeviceInfo,
	},
	{
		Kind:           KindCorruptSchema,
		Description:    "IndexedDB schema initialization failed; database is corrupt",
		ProducesAlerts: false,
		Repair:         RepairHardReset,
	},
	{
		Kind:           KindStoresNotCorrectlySetUp,
		Description:    "Object stores not correctly set up; database is corrupt",
		ProducesAlerts: false,
		Repair:         RepairHardReset,
	},
}

// KindByName returns the metadata for a kind, or false if the name is not
// part of the taxonomy.
func KindByName(name string) (KindInfo, bool) {
	for _, k := range Kinds {
		if string(k.Kind) == name {
			return k, true
		}
	}
	return KindInfo{}, false
}

// AllKinds returns the taxonomy members in declaration order.
func AllKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(Kinds))
	for _, k := range Kinds {
		kinds = append(kinds, k.Kind)
	}
	return kinds
}

// Info returns the metadata for this kind. Unknown kinds return a zero
// KindInfo; callers holding an ErrorKind produced by the classifier never
// hit that case.
func (k ErrorKind) Info() KindInfo {
	info, _ := KindByName(string(k))
	return info
}

func (k ErrorKind) String() string { return string(k) }
