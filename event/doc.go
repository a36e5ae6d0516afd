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

/*
Package event defines the notifications produced about virtualized objects.

An event carries an ID, naming its namespace (domain or network) and its
kind, a Meta snapshot of the object it is about, and a Payload with the
kind-specific data. Events are built by hypervisor drivers and handed to a
state.State, which delivers them to subscribers:

	ev, err := event.NewBlockJob(meta, "/var/lib/images/vm1.qcow2", event.BlockJobCopy, event.BlockJobReady)
	if err != nil {
		return err
	}
	st.Queue(ctx, ev)

Events are immutable and reference counted. Whoever holds an event calls
Unref once when done with it.
*/
package event
