// Copyright 2025 Arion Yau
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

package regza

import "net/http"

// RemoteKeyCode is a vendor key token accepted by the remote.htm endpoint
type RemoteKeyCode string

// Intent is an abstract remote-control command independent of key codes
type Intent string

// VolumeDirection selects which volume key to press
type VolumeDirection string

// MuteSource selects which mute getter an integration layer should expose
type MuteSource string

// Endpoint identifies a television and the credentials of its status API.
// Fields are not modified after a Controller is built from it.
type Endpoint struct {
	Host string `json:"host" yaml:"host"`
	User string `json:"user" yaml:"user"`
	Pass string `json:"-" yaml:"pass"`
}

// Doer is the HTTP transport consumed by the protocol layer.
// *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Challenge is the realm/nonce pair taken from a WWW-Authenticate header.
// It is used for exactly one authenticated request.
type Challenge struct {
	Realm string
	Nonce string
}

// playStatus is the body of the power status endpoint
type playStatus struct {
	ContentType *string `json:"content_type"`
}

// muteStatus is the body of the mute status endpoint
type muteStatus struct {
	Status interface{} `json:"status"`
	Mute   interface{} `json:"mute"`
}
