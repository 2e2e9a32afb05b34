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

package settings

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/abates/relay"
)

const floatFormat = "c_float"

type document struct {
	XMLName  xml.Name         `xml:"relay_settings"`
	Channels []channelElement `xml:"channel"`
}

type channelElement struct {
	ID      string          `xml:"id,attr"`
	Actions []actionElement `xml:"action"`
}

type actionElement struct {
	Type    string          `xml:"type,attr"`
	Formats []formatElement `xml:"format"`
}

type formatElement struct {
	Type   string         `xml:"type,attr"`
	Value  string         `xml:",chardata"`
	Floats []floatElement `xml:"float"`
}

type floatElement struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// WriteDocument writes values as an indented XML document.  Every
// slot is written, unset ones as empty elements, and float 1 always
// precedes float 2.
func WriteDocument(w io.Writer, values Values) error {
	doc := document{}
	for _, channel := range relay.Channels() {
		ce := channelElement{ID: channel.String()}
		for _, action := range relay.Actions() {
			ae := actionElement{Type: action.String()}
			for _, repr := range []relay.Representation{relay.Hex, relay.Binary} {
				ae.Formats = append(ae.Formats, formatElement{
					Type:  repr.String(),
					Value: values[relay.Key(channel, action, repr)],
				})
			}

			fe := formatElement{Type: floatFormat}
			for _, index := range []relay.FloatIndex{relay.Float1, relay.Float2} {
				fe.Floats = append(fe.Floats, floatElement{
					ID:    strconv.Itoa(int(index)),
					Value: values[relay.FloatKey(channel, action, index)],
				})
			}
			ae.Formats = append(ae.Formats, fe)
			ce.Actions = append(ce.Actions, ae)
		}
		doc.Channels = append(doc.Channels, ce)
	}

	buf, err := xml.MarshalIndent(&doc, "", "  ")
	if err == nil {
		_, err = io.WriteString(w, xml.Header)
	}

	if err == nil {
		_, err = w.Write(append(buf, '\n'))
	}
	return err
}

// ReadDocument parses an XML settings document.  Elements that do not
// name a known channel, action, format or float index are skipped and
// slots missing from the document are returned as empty strings.
func ReadDocument(r io.Reader) (Values, error) {
	doc := document{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrPersistenceRead, err)
	}

	values := Defaults()
	for _, ce := range doc.Channels {
		channel, err := relay.ParseChannel(ce.ID)
		if err != nil {
			relay.Log.Debugf("skipping settings for channel %q: %v", ce.ID, err)
			continue
		}

		for _, ae := range ce.Actions {
			action, err := relay.ParseAction(ae.Type)
			if err != nil {
				relay.Log.Debugf("skipping settings for action %q: %v", ae.Type, err)
				continue
			}

			for _, fe := range ae.Formats {
				switch fe.Type {
				case relay.Hex.String(), relay.Binary.String():
					values[relay.Key(channel, action, relay.Representation(fe.Type))] = fe.Value
				case floatFormat:
					for _, f := range fe.Floats {
						key := relay.FloatKey(channel, action, parseFloatIndex(f.ID))
						if key.Valid() {
							values[key] = f.Value
						} else {
							relay.Log.Debugf("skipping float %q of ch%d %s", f.ID, channel, action)
						}
					}
				default:
					relay.Log.Debugf("skipping unknown format %q of ch%d %s", fe.Type, channel, action)
				}
			}
		}
	}
	return values, nil
}

// storable reports whether text survives a write and read of the
// document unchanged.  XML 1.0 has no encoding for most control
// characters or for invalid UTF-8.
func storable(text string) bool {
	if !utf8.ValidString(text) {
		return false
	}

	for _, r := range text {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

func parseFloatIndex(str string) relay.FloatIndex {
	n, err := strconv.Atoi(str)
	if err != nil {
		return relay.NoFloat
	}
	return relay.FloatIndex(n)
}
