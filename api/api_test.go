package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/api"
	"github.com/papercomputeco/memhooks/pkg/session"
	testutils "github.com/papercomputeco/memhooks/pkg/utils/test"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

const chatPayload = `{"sessionID":"ses_1","directory":"/home/dev/shop","parts":[{"type":"text","text":"hi"}]}`

var _ = Describe("Bridge", func() {
	var (
		fw     *testutils.FakeWorker
		server *api.Server
	)

	do := func(method, path, body string) (int, []byte) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, r)
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, data
	}

	BeforeEach(func() {
		fw = testutils.NewFakeWorker()
		DeferCleanup(fw.Close)

		client, err := worker.NewClient(worker.Config{BaseURL: fw.URL()})
		Expect(err).NotTo(HaveOccurred())

		server, err = api.NewServer(api.Config{ListenAddr: ":0", Worker: client})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a worker", func() {
		_, err := api.NewServer(api.Config{})
		Expect(err).To(MatchError(ContainSubstring("worker is required")))
	})

	It("answers ping", func() {
		status, body := do(http.MethodGet, "/ping", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"status":"ok"}`))
	})

	Describe("hooks", func() {
		It("initializes one session per instance", func() {
			fw.Reply("/api/sessions/init", testutils.Reply{Body: `{"sessionDbId": 3}`})

			status, body := do(http.MethodPost, "/v1/instances/a/hooks/session-init?platform=opencode", chatPayload)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"continue":true}`))

			do(http.MethodPost, "/v1/instances/a/hooks/session-init?platform=opencode", chatPayload)
			do(http.MethodPost, "/v1/instances/b/hooks/session-init?platform=opencode", chatPayload)

			calls := fw.CallsTo("/api/sessions/init")
			Expect(calls).To(HaveLen(2))
			Expect(calls[0].Body["contentSessionId"]).NotTo(Equal(calls[1].Body["contentSessionId"]))

			status, body = do(http.MethodGet, "/v1/instances/a/session", "")
			Expect(status).To(Equal(http.StatusOK))
			var st session.State
			Expect(json.Unmarshal(body, &st)).To(Succeed())
			Expect(st.Initialized).To(BeTrue())
		})

		It("formats output for the instance's platform", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "MEM"})

			_, body := do(http.MethodPost, "/v1/instances/cc/hooks/context-inject?platform=claude-code", `{"session_id":"s","cwd":"/repo"}`)
			Expect(body).To(MatchJSON(`{"hookSpecificOutput":{"hookEventName":"SessionStart","additionalContext":"MEM"}}`))
		})

		It("still continues when the host payload is garbage", func() {
			status, body := do(http.MethodPost, "/v1/instances/a/hooks/tool-executed", "not json")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"continue":true}`))
		})

		It("rejects unknown events and platforms", func() {
			status, body := do(http.MethodPost, "/v1/instances/a/hooks/file-saved", "{}")
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("unknown event"))

			status, body = do(http.MethodPost, "/v1/instances/a/hooks/session-init?platform=vim", "{}")
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("unsupported platform"))
		})

		It("refuses to switch an instance to another platform", func() {
			do(http.MethodPost, "/v1/instances/a/hooks/session-init?platform=cursor", "{}")
			status, _ := do(http.MethodPost, "/v1/instances/a/hooks/session-init?platform=opencode", "{}")
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("system transform", func() {
		It("returns the system prompt with context appended", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "MEM"})

			status, body := do(http.MethodPost, "/v1/instances/a/system", `{"directory":"/x/shop","system":["base"]}`)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"system":["base\n\nMEM"]}`))
		})
	})

	Describe("instances", func() {
		It("returns 404 for unknown instances", func() {
			status, _ := do(http.MethodGet, "/v1/instances/nope/session", "")
			Expect(status).To(Equal(http.StatusNotFound))

			status, _ = do(http.MethodDelete, "/v1/instances/nope", "")
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("deletes an instance", func() {
			do(http.MethodPost, "/v1/instances/a/hooks/session-init", chatPayload)
			status, _ := do(http.MethodDelete, "/v1/instances/a", "")
			Expect(status).To(Equal(http.StatusNoContent))

			status, _ = do(http.MethodGet, "/v1/instances/a/session", "")
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Describe("tools", func() {
		It("lists the tools with their schemas", func() {
			status, body := do(http.MethodGet, "/v1/tools", "")
			Expect(status).To(Equal(http.StatusOK))

			var tools []api.ToolInfo
			Expect(json.Unmarshal(body, &tools)).To(Succeed())
			Expect(tools).To(HaveLen(3))
			Expect(tools[2].Name).To(Equal("get_observations"))
			Expect(string(tools[2].InputSchema)).To(ContainSubstring(`"ids"`))
		})

		It("passes results through", func() {
			fw.Reply("/api/search", testutils.Reply{Body: `{"results":[]}`})
			status, body := do(http.MethodPost, "/v1/tools/search", `{"query":"cart"}`)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"results":[]}`))
		})

		It("returns failures as data", func() {
			fw.SetReady(false)
			status, body := do(http.MethodPost, "/v1/tools/timeline", `{"anchor":1}`)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"error":"memory worker unavailable"}`))
		})

		It("rejects unknown tools and non-object arguments", func() {
			status, _ := do(http.MethodPost, "/v1/tools/drop_table", "{}")
			Expect(status).To(Equal(http.StatusNotFound))

			status, _ = do(http.MethodPost, "/v1/tools/search", `[1,2]`)
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("over a network listener", func() {
		var baseURL string

		BeforeEach(func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			go func() { _ = server.App().Listener(ln) }()
			DeferCleanup(server.Shutdown)
			baseURL = "http://" + ln.Addr().String()
		})

		send := func(client *http.Client, method, path, body string) (int, []byte) {
			req, err := http.NewRequest(method, baseURL+path, strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			return resp.StatusCode, data
		}

		It("keeps every instance reachable across reused connections", func() {
			client := &http.Client{}
			keys := []string{}
			for i := range 40 {
				key := fmt.Sprintf("key%05d", i)
				keys = append(keys, key)
				status, _ := send(client, http.MethodPost, "/v1/instances/"+key+"/hooks/session-init", chatPayload)
				Expect(status).To(Equal(http.StatusOK))
			}

			for _, key := range keys {
				status, body := send(client, http.MethodGet, "/v1/instances/"+key+"/session", "")
				Expect(status).To(Equal(http.StatusOK), key)
				var st session.State
				Expect(json.Unmarshal(body, &st)).To(Succeed())
				Expect(st.Initialized).To(BeTrue(), key)
			}

			calls := fw.CallsTo("/api/sessions/init")
			Expect(calls).To(HaveLen(len(keys)))
			ids := map[any]bool{}
			for _, c := range calls {
				ids[c.Body["contentSessionId"]] = true
			}
			Expect(ids).To(HaveLen(len(keys)))
		})

		It("never lets interleaved sessions share an instance", func() {
			client := &http.Client{}
			for round := range 3 {
				for i := range 5 {
					key := fmt.Sprintf("ses_%03d", i)
					send(client, http.MethodPost, "/v1/instances/"+key+"/hooks/session-init", chatPayload)
					send(client, http.MethodPost, "/v1/instances/"+key+"/hooks/tool-executed",
						fmt.Sprintf(`{"tool":"bash","args":{"n":%d}}`, round))
				}
			}

			Expect(fw.CallsTo("/api/sessions/init")).To(HaveLen(5))
			Expect(fw.CallsTo("/api/sessions/observations")).To(HaveLen(15))
		})
	})
})
