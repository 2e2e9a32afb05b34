// Copyright 2018 Andrew Bates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

// Transport is the write side of the link to the relay board.  The
// board never answers, so there is nothing to read.
type Transport interface {
	// Write sends buf in full or returns an error wrapping ErrTransport
	Write(buf []byte) error

	// IsOpen indicates whether Write can currently succeed
	IsOpen() bool
}
