package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
)

// DonorNotificationEvent 一次献血者通知任务的汇总事件
type DonorNotificationEvent struct {
	JobID        string `json:"job_id"`
	Kind         string `json:"kind"`
	BloodTypeID  uint   `json:"blood_type_id,omitempty"`
	ProvinceID   uint   `json:"province_id"`
	BloodDriveID uint   `json:"blood_drive_id,omitempty"`
	Channel      string `json:"channel"`
	Matched      int    `json:"matched"`
	Sent         int    `json:"sent"`
	Failed       int    `json:"failed"`
	Timestamp    int64  `json:"timestamp"`
}

// EventPublisher 通知事件发布接口
type EventPublisher interface {
	PublishDonorNotificationEvent(event DonorNotificationEvent) error
}

// InterfaceMQTTService 定义MQTT服务接口
type InterfaceMQTTService interface {
	EventPublisher
	Connect() error
	Disconnect()
	Publish(topic string, payload interface{}) error
}

// MQTTService 通过 MQTT 发布通知事件
type MQTTService struct {
	Config         *config.Config
	Client         mqtt.Client
	MaxRetries     int
	connectMutex   sync.Mutex
	publishMutex   sync.Mutex
	connectedMutex sync.RWMutex
	isConnected    bool
}

// NewMQTTService 创建MQTT服务，连接在首次发布时建立
func NewMQTTService(cfg *config.Config) *MQTTService {
	service := &MQTTService{
		Config:     cfg,
		MaxRetries: 3,
	}
	service.Client = mqtt.NewClient(service.clientOptions())
	return service
}

// NewMQTTServiceWithClient 使用已有客户端创建MQTT服务
func NewMQTTServiceWithClient(cfg *config.Config, client mqtt.Client) *MQTTService {
	return &MQTTService{
		Config:     cfg,
		Client:     client,
		MaxRetries: 1,
	}
}

// clientOptions 设置MQTT客户端
func (s *MQTTService) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", s.Config.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		Logger.Warning("[MQTT] 连接丢失: %v", err)
		s.setConnected(false)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		Logger.Info("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
		s.setConnected(true)
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		Logger.Info("[MQTT] 正在尝试重连...")
	})
	return opts
}

func (s *MQTTService) setConnected(connected bool) {
	s.connectedMutex.Lock()
	s.isConnected = connected
	s.connectedMutex.Unlock()
}

func (s *MQTTService) connected() bool {
	s.connectedMutex.RLock()
	defer s.connectedMutex.RUnlock()
	return s.isConnected && s.Client.IsConnected()
}

// 1 Connect 连接到MQTT服务器，带有重试机制
func (s *MQTTService) Connect() error {
	s.connectMutex.Lock()
	defer s.connectMutex.Unlock()

	if s.connected() {
		return nil
	}

	var err error
	for i := 0; i < s.MaxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.setConnected(true)
			return nil
		}

		err = token.Error()
		if i < s.MaxRetries-1 {
			backoff := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s
			Logger.Warning("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, s.MaxRetries, err, backoff)
			time.Sleep(backoff)
		}
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", s.MaxRetries, err)
}

// 2 Disconnect 断开与MQTT服务器的连接
func (s *MQTTService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
	s.setConnected(false)
}

// 3 Publish 发布消息到指定主题
func (s *MQTTService) Publish(topic string, payload interface{}) error {
	if !s.connected() {
		if err := s.Connect(); err != nil {
			return fmt.Errorf("MQTT客户端未连接: %w", err)
		}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	token := s.Client.Publish(topic, byte(s.Config.MQTTQoS), false, jsonData)
	if !token.WaitTimeout(3 * time.Second) {
		return fmt.Errorf("发布消息超时")
	}
	if token.Error() != nil {
		return fmt.Errorf("发布消息失败: %w", token.Error())
	}
	return nil
}

// 4 PublishDonorNotificationEvent 发布通知任务汇总
func (s *MQTTService) PublishDonorNotificationEvent(event DonorNotificationEvent) error {
	return s.Publish(s.Config.MQTTTopic, event)
}
