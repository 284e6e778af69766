package sink

// Tee 把事件同时分发给多个订阅者；nil 成员被跳过。
// 运行服务用它同时喂界面日志与落库留痕。
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) OnEvent(e Event) {
	for _, s := range t {
		if s != nil {
			s.OnEvent(e)
		}
	}
}
