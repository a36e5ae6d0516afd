// Copyright © 2017 The virtual-kubelet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cbosdo/libvirt/errdefs"
)

// Namespace is the object family an event belongs to.
type Namespace uint8

const (
	// NamespaceDomain is the zero namespace so that bare domain kind ids
	// stay valid event ids.
	NamespaceDomain Namespace = iota
	NamespaceNetwork
)

func (ns Namespace) String() string {
	switch ns {
	case NamespaceDomain:
		return "domain"
	case NamespaceNetwork:
		return "network"
	default:
		return fmt.Sprintf("namespace(%d)", uint8(ns))
	}
}

// Kind is the namespace-local part of an ID.
type Kind uint8

// ID identifies an event kind: the namespace in the upper bits and the kind
// in the low 8 bits.
type ID int

// MakeID encodes a namespace and kind into an ID.
func MakeID(ns Namespace, kind Kind) ID {
	return ID(int(ns)<<8 | int(kind))
}

// Namespace decodes the namespace part of id.
func (id ID) Namespace() Namespace {
	return Namespace(id >> 8)
}

// Kind decodes the kind part of id.
func (id ID) Kind() Kind {
	return Kind(id & 0xff)
}

// Domain event ids. The numeric values are part of the wire contract.
const (
	IDLifecycle ID = iota
	IDReboot
	IDRTCChange
	IDWatchdog
	IDIOError
	IDGraphics
	IDIOErrorReason
	IDControlError
	IDBlockJob
	IDDiskChange
	IDTrayChange
	IDPMWakeup
	IDPMSuspend
	IDBalloonChange
	IDPMSuspendDisk
	IDDeviceRemoved
)

// Network event ids.
const (
	IDNetworkLifecycle ID = ID(NamespaceNetwork)<<8 + iota
)

var idNames = map[ID]string{
	IDLifecycle:        "lifecycle",
	IDReboot:           "reboot",
	IDRTCChange:        "rtc-change",
	IDWatchdog:         "watchdog",
	IDIOError:          "io-error",
	IDGraphics:         "graphics",
	IDIOErrorReason:    "io-error-reason",
	IDControlError:     "control-error",
	IDBlockJob:         "block-job",
	IDDiskChange:       "disk-change",
	IDTrayChange:       "tray-change",
	IDPMWakeup:         "pm-wakeup",
	IDPMSuspend:        "pm-suspend",
	IDBalloonChange:    "balloon-change",
	IDPMSuspendDisk:    "pm-suspend-disk",
	IDDeviceRemoved:    "device-removed",
	IDNetworkLifecycle: "lifecycle",
}

// Known reports whether id names an event kind this package can build.
func (id ID) Known() bool {
	_, ok := idNames[id]
	return ok
}

// String returns "namespace.kind", e.g. "domain.block-job".
func (id ID) String() string {
	name, ok := idNames[id]
	if !ok {
		return fmt.Sprintf("%s.%d", id.Namespace(), id.Kind())
	}
	return id.Namespace().String() + "." + name
}

// KnownIDs returns every known event id in ascending order.
func KnownIDs() []ID {
	ids := make([]ID, 0, len(idNames))
	for id := range idNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseID is the inverse of ID.String.
func ParseID(s string) (ID, error) {
	for id := range idNames {
		if strings.EqualFold(id.String(), s) {
			return id, nil
		}
	}
	return 0, errdefs.InvalidInputf("unknown event kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	v, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
