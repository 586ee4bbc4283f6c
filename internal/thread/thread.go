// Package thread rebuilds the nested reply structure from a flat,
// parent-referencing comment list.
//
// 评论在库里是平铺存储的，楼中楼只在读取时重建。输入按 created_at
// 升序给出，回复必然晚于其父评论创建，所以单次顺序遍历即可完成挂载。
package thread

import "pudding/internal/entity"

// BuildForest converts a flat, timestamp-ordered comment list into a forest
// of reply nodes.
//
// Every input comment becomes exactly one node. A node whose ParentID
// resolves to another node in the input is appended to that parent's
// Replies; a node without a parent, or whose parent is missing (for example
// deleted), is placed at the top level. The transformation is pure and
// order-stable: replies keep the input (timestamp) order.
func BuildForest(comments []entity.DbComment) []*entity.CommentNode {
	forest := make([]*entity.CommentNode, 0, len(comments))
	if len(comments) == 0 {
		return forest
	}

	index := make(map[uint]*entity.CommentNode, len(comments))
	nodes := make([]*entity.CommentNode, 0, len(comments))
	for _, comment := range comments {
		node := &entity.CommentNode{
			DbComment: comment,
			Replies:   []*entity.CommentNode{},
		}
		nodes = append(nodes, node)
		index[comment.ID] = node
	}

	for _, node := range nodes {
		// 自引用会让节点挂到自己的 Replies 下，遍历和序列化都会死循环，
		// 和悬空引用一样降级为顶层展示。
		if node.ParentID != nil && *node.ParentID != node.ID {
			if parent, ok := index[*node.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
			// 悬空引用：父评论已被删除，降级为顶层展示。
		}
		forest = append(forest, node)
	}

	return forest
}

// CountNodes returns the total number of nodes in the forest, replies
// included.
func CountNodes(forest []*entity.CommentNode) int {
	total := 0
	for _, node := range forest {
		total += 1 + CountNodes(node.Replies)
	}
	return total
}
