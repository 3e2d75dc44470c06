package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pet_tracker/internal/config"
)

// RunConsole subscribes to the base node's position topic and pretty-prints
// every update. Diagnostic tool for watching the link without the web UI.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicPosition, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p Position
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: position unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[POS] %s  lat=%10.6f  lon=%11.6f  rssi=%6.1f dBm  snr=%6.2f dB\n",
			formatHHMMSS(p.Time), p.Lat, p.Lon, p.RSSI, p.SNR,
		)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPosition)

	// Wait for Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Disconnect(250)
	return nil
}
