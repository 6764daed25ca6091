// Package ble exposes entities over Bluetooth Low Energy.
//
// A Peripheral broadcasts BTHome v2 advertisements built from its BTHome
// sensors and, when control is enabled, offers a GATT control service for
// its switches:
//
//	Service  5eed0001-b5a3-f393-e0a9-e50e24dcca9e
//	Command  5eed0002-...  write / write without response: [switch index, state]
//	State    5eed0003-...  read / notify:                  [count, state0, state1, ...]
//
// The platform radio is reached only through the Radio interface; the
// Peripheral registers itself as the radio's EventHandler when it starts,
// so no global state routes callbacks back. TinyGoRadio is the concrete
// radio for hosts supported by tinygo.org/x/bluetooth.
package ble
