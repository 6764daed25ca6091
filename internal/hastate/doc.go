// Package hastate mirrors Home Assistant entity states pushed to the device.
//
// Home Assistant can forward the state of any of its entities over the
// WebSocket link ("ha_state" messages). The Store keeps the latest state
// per entity id in a bounded map: the first push creates an entry, later
// pushes update it in place, and only an explicit clear removes entries.
// When the map is full, pushes for new entity ids are rejected and existing
// entries are left untouched.
package hastate
