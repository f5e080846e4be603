package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"portq/broker_client"
)

const (
	modeBroker = "broker"
	modePub    = "pub"
	modeSub    = "sub"
)

type demoMessage struct {
	A int    `json:"a"`
	B string `json:"b"`
}

func (m demoMessage) String() string {
	return fmt.Sprintf("demoMessage{a=%d, b=%s}", m.A, m.B)
}

type demoOptions struct {
	host        string
	controlPort int
	topic       string
	capacity    int
	count       int
}

// runDemo publishes or consumes count structured messages on the topic and
// count characters on "<topic>-char".
func runDemo(mode string, opts demoOptions, out io.Writer) error {
	charTopic := opts.topic + "-char"
	if mode == modePub {
		if err := publishAll(opts, opts.topic, func(i int) demoMessage {
			return demoMessage{A: i, B: string(rune('0' + i%10))}
		}, out); err != nil {
			return err
		}
		return publishAll(opts, charTopic, func(i int) string {
			return string(rune('a' + i%26))
		}, out)
	}
	if err := consumeAll[demoMessage](opts, opts.topic, out); err != nil {
		return err
	}
	return consumeAll[string](opts, charTopic, out)
}

func publishAll[T any](opts demoOptions, topicName string, build func(i int) T, out io.Writer) error {
	pub, err := broker_client.NewPublisher[T](opts.host, opts.controlPort, topicName, opts.capacity)
	if err != nil {
		return err
	}
	for i := 0; i < opts.count; i++ {
		msg := build(i)
		if err := pub.Publish(msg); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %v\n", color.GreenString("[%s] published", topicName), msg)
	}
	return nil
}

func consumeAll[T any](opts demoOptions, topicName string, out io.Writer) error {
	sub, err := broker_client.NewSubscriber[T](opts.host, opts.controlPort, topicName, opts.capacity, func(msg T) {
		fmt.Fprintf(out, "%s %v\n", color.CyanString("[%s] received", topicName), msg)
	})
	if err != nil {
		return err
	}
	for i := 0; i < opts.count; i++ {
		if err := sub.Subscribe(); err != nil {
			return err
		}
	}
	return nil
}
