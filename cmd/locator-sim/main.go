package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"trackmate/internal/protocol/locator"
	"trackmate/internal/sms"
)

// locator-sim plays the GPS locator hardware against a running broker: it
// consumes the texts the server sends and answers them the way the device
// would, so the whole polling protocol can be exercised without a SIM card.
func main() {
	brokerAddr := flag.String("broker", sms.DefaultBrokerURL, "MQTT broker address")
	number := flag.String("number", "+38970111222", "Simulated locator SIM number")
	lat := flag.Float64("lat", 41.9981, "Reported latitude")
	lng := flag.Float64("lng", 21.4254, "Reported longitude")
	battery := flag.Int("battery", 84, "Reported battery percent")
	jitter := flag.Float64("jitter", 0.0005, "Random jitter applied to coordinates")
	noFix := flag.Bool("no-fix", false, "Answer location requests with the no-GPS-signal reply")
	mute := flag.Bool("mute", false, "Never answer location requests")
	replyDelay := flag.Duration("reply-delay", 2*time.Second, "Delay before answering")

	flag.Parse()

	clientID := fmt.Sprintf("locator-sim-%d", time.Now().UnixNano())
	opts := mqtt.NewClientOptions().AddBroker(*brokerAddr).SetClientID(clientID)
	opts = opts.SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("failed to connect to broker: %v", token.Error())
	}
	log.Printf("connected to %s as %s, simulating locator %s", *brokerAddr, clientID, *number)

	respond := func(body string) {
		time.Sleep(*replyDelay)
		payload, err := json.Marshal(sms.InboundMessage{
			Sender:     *number,
			Body:       body,
			ReceivedAt: time.Now().UTC(),
		})
		if err != nil {
			log.Printf("failed to encode reply: %v", err)
			return
		}
		token := client.Publish(sms.DefaultInboundTopic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("publish error: %v", err)
			return
		}
		log.Printf("replied: %s", body)
	}

	topic := sms.DefaultOutboundPrefix + *number
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, raw mqtt.Message) {
		var msg sms.OutboundMessage
		if err := json.Unmarshal(raw.Payload(), &msg); err != nil {
			log.Printf("dropping malformed outbound payload: %v", err)
			return
		}
		log.Printf("received: %s", msg.Body)

		switch msg.Body {
		case locator.CmdRequestLocation:
			if *mute {
				log.Println("muted, not answering")
				return
			}
			go respond(locationReply(*lat, *lng, *battery, *jitter, *noFix))
		case locator.CmdBind:
			go respond(fmt.Sprintf("Set;Binding+%s", *number))
		case locator.CmdRestart:
			log.Println("restarting (pretend)")
		case locator.CmdClearMemory:
			log.Println("memory cleared (pretend)")
		case locator.CmdCallBack:
			log.Println("calling back (pretend)")
		default:
			log.Printf("unknown command %q", msg.Body)
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Fatalf("failed to subscribe to %s: %v", topic, token.Error())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	client.Disconnect(250)
	log.Println("simulator stopped")
}

func locationReply(lat, lng float64, battery int, jitter float64, noFix bool) string {
	if noFix {
		return fmt.Sprintf("VBT:%d%%,GPS not fixed,http://maps.google.com/maps?q=-1,-1", battery)
	}
	lat += (rand.Float64()*2 - 1) * jitter
	lng += (rand.Float64()*2 - 1) * jitter
	return fmt.Sprintf("VBT:%d%%,http://maps.google.com/maps?q=%.6f,%.6f", battery, lat, lng)
}
