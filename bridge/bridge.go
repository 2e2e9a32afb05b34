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

// Package bridge triggers relay commands from MQTT.  A message
// published to <topic>/<channel>/<action>/<representation> dispatches
// that command; the result is published to <topic>/status.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abates/relay"
	"github.com/abates/relay/config"
	"github.com/abates/relay/dispatch"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

var ErrTopic = errors.New("topic must be <topic>/<channel>/<action>/<representation>")

// Status is the JSON document published after each command
type Status struct {
	Topic          string `json:"topic"`
	Channel        int    `json:"channel,omitempty"`
	Action         string `json:"action,omitempty"`
	Representation string `json:"representation,omitempty"`
	Display        string `json:"display,omitempty"`
	Bytes          string `json:"bytes,omitempty"`
	Sent           bool   `json:"sent"`
	Error          string `json:"error,omitempty"`
}

// ParseTopic splits a command topic published under prefix
func ParseTopic(prefix, topic string) (channel relay.Channel, action relay.Action, repr relay.Representation, err error) {
	rest := strings.TrimPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	parts := strings.Split(rest, "/")
	if rest == topic || len(parts) != 3 {
		return 0, "", "", fmt.Errorf("%w: %q", ErrTopic, topic)
	}

	channel, err = relay.ParseChannel(parts[0])
	if err == nil {
		action, err = relay.ParseAction(parts[1])
	}

	if err == nil {
		repr, err = relay.ParseRepresentation(parts[2])
	}
	return channel, action, repr, err
}

// Bridge connects an MQTT broker to a dispatcher and transport.
// Messages are handled one at a time.
type Bridge struct {
	sync.Mutex
	cfg        config.MQTTConfig
	dispatcher *dispatch.Dispatcher
	transport  relay.Transport
	client     mqtt.Client
	log        *logrus.Entry

	// newClient is replaced in tests
	newClient func(o *mqtt.ClientOptions) mqtt.Client
}

// New returns a bridge that is not yet connected
func New(cfg config.MQTTConfig, dispatcher *dispatch.Dispatcher, transport relay.Transport) *Bridge {
	return &Bridge{
		cfg:        cfg,
		dispatcher: dispatcher,
		transport:  transport,
		log:        relay.Log.WithField("module", "mqtt"),
		newClient:  mqtt.NewClient,
	}
}

func (b *Bridge) commandTopic() string { return strings.TrimSuffix(b.cfg.Topic, "/") + "/+/+/+" }

func (b *Bridge) statusTopic() string { return strings.TrimSuffix(b.cfg.Topic, "/") + "/status" }

// Handle dispatches the command named by topic and delivers it to
// the transport
func (b *Bridge) Handle(topic string) Status {
	b.Lock()
	defer b.Unlock()

	status := Status{Topic: topic}
	channel, action, repr, err := ParseTopic(b.cfg.Topic, topic)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	outcome := b.dispatcher.Dispatch(channel, action, repr)
	status.Channel = int(outcome.Channel)
	status.Action = outcome.Action.String()
	status.Representation = outcome.Representation.String()
	status.Display = outcome.Display
	status.Bytes = outcome.Hex

	if err := dispatch.Deliver(outcome, b.transport); err != nil {
		status.Error = err.Error()
	} else {
		status.Sent = true
	}
	b.log.Info(outcome.String())
	return status
}

// Start connects to the broker and subscribes to the command topic.
// The subscription is renewed on every reconnect.  If ctx is done before
// the broker answers, the connection attempt is abandoned and ctx.Err()
// is returned.
func (b *Bridge) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(b.cfg.ClientID).
		SetUsername(b.cfg.Username).
		SetPassword(b.cfg.Password).
		SetOnConnectHandler(b.connectHandler).
		SetConnectionLostHandler(b.connectLostHandler).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	b.client = b.newClient(opts)
	err := wait(ctx, b.client.Connect())
	if err != nil && ctx.Err() != nil {
		b.log.Infof("connection to %s abandoned", b.cfg.Broker)
		b.client.Disconnect(0)
	}
	return err
}

// Stop disconnects from the broker
func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(500)
	}
}

func (b *Bridge) connectHandler(client mqtt.Client) {
	topic := b.commandTopic()
	b.log.Infof("connected, subscribing to %s", topic)
	token := client.Subscribe(topic, b.cfg.QoS, b.messageHandler)
	go func() {
		if token.Wait() && token.Error() != nil {
			b.log.Errorf("topic %s subscription error: %v", topic, token.Error())
		}
	}()
}

func (b *Bridge) connectLostHandler(_ mqtt.Client, err error) {
	b.log.Errorf("server connection lost: %v", err)
}

func (b *Bridge) messageHandler(client mqtt.Client, msg mqtt.Message) {
	b.log.Debugf("received message on %s", msg.Topic())
	status := b.Handle(msg.Topic())

	payload, err := json.Marshal(status)
	if err != nil {
		b.log.Errorf("failed to encode status: %v", err)
		return
	}

	token := client.Publish(b.statusTopic(), b.cfg.QoS, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			b.log.Errorf("error publishing status: %v", token.Error())
		}
	}()
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
